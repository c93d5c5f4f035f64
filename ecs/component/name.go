package component

// Name identifies a scene object. Path is the slash-separated hierarchy path
// used as a fallback lookup key.
type Name struct {
	Name string
	Path string
}

var NameComponent = NewComponent[Name]()
