package model

// Language is a runtime offered by the execution service, identified by the
// service's own language id.
type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

const DefaultLanguageID = 92

var languages = map[int]Language{
	71:  {ID: 71, Name: "Python (3.8.1)"},
	92:  {ID: 92, Name: "Python (3.11.2)"},
	100: {ID: 100, Name: "Python (3.12.5)"},
}

func LookupLanguage(id int) (Language, bool) {
	l, ok := languages[id]
	return l, ok
}
