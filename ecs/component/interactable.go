package component

// Interactable records which interaction kind an object was tagged with in
// the scene and the profile applied to it.
type Interactable struct {
	Kind    string
	Profile string
}

var InteractableComponent = NewComponent[Interactable]()
