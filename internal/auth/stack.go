package auth

// Stack opens authentication transactions against a credential database.
type Stack interface {
	// Start opens a transaction for user under service. A stack that returns
	// a non-nil Transaction together with an error has partially initialised
	// and still needs End.
	Start(service, user string, r Responder) (Transaction, error)
}

// Transaction is one authentication context. End must be called exactly once.
type Transaction interface {
	Authenticate() error
	// AcctMgmt checks account validity (expiry, access restrictions).
	AcctMgmt() error
	SetTTY(tty string) error
	// EstablishCred and DeleteCred bracket the session's credentials.
	EstablishCred() error
	DeleteCred() error
	OpenSession() error
	CloseSession() error
	// Env returns the variables the stack wants in the session environment.
	Env() (map[string]string, error)
	End() error
}
