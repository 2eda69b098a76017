package usecase

// Authorizer answers whether an identity may perform administrative
// operations. Injected once; consulted at each privileged entry point.
type Authorizer interface {
	IsPrivileged(tgID int64) bool
}

// SingleAdmin authorizes exactly one Telegram identity.
type SingleAdmin int64

func (a SingleAdmin) IsPrivileged(tgID int64) bool {
	return int64(a) == tgID
}
