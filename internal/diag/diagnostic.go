package diag

// Location points a diagnostic at an input file and the entity inside it
// (a type, a member signature, a recipe entry). Both parts are optional.
type Location struct {
	Path    string
	Subject string
}

func (l Location) String() string {
	switch {
	case l.Path == "":
		return l.Subject
	case l.Subject == "":
		return l.Path
	default:
		return l.Path + " " + l.Subject
	}
}

type Note struct {
	At  Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}
