package component

// Tags are free-form labels used for socket compatibility checks.
type Tags struct {
	Values []string
}

func (t *Tags) Has(tag string) bool {
	if t == nil {
		return false
	}
	for _, v := range t.Values {
		if v == tag {
			return true
		}
	}
	return false
}

var TagsComponent = NewComponent[Tags]()
