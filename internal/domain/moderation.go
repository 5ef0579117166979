package domain

// Decision is a moderation gate verdict. A disallowed input is a normal
// decision, not an error; gate errors mean the check itself failed.
type Decision struct {
	Allowed bool
	Reason  string
}
