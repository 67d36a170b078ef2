package entity

// PrincipalKind tags both authenticated actors and the short-lived
// email tokens. Tokens of one kind are never accepted as another.
type PrincipalKind string

const (
	KindPatient       PrincipalKind = "patient"
	KindDoctor        PrincipalKind = "doctor"
	KindAdmin         PrincipalKind = "admin"
	KindEmailVerify   PrincipalKind = "email_verify"
	KindPasswordReset PrincipalKind = "password_reset"
)

// Principal is the authenticated actor behind a request.
type Principal struct {
	Kind PrincipalKind
	ID   string
}

func AsPatient(id string) Principal { return Principal{Kind: KindPatient, ID: id} }
func AsDoctor(id string) Principal  { return Principal{Kind: KindDoctor, ID: id} }
func AsAdmin(id string) Principal   { return Principal{Kind: KindAdmin, ID: id} }
