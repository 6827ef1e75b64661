package middlewares

const (
	CtxRequestID = "request_id"
	CtxAccountID = "auth.accountID"
)
