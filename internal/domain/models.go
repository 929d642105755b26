package domain

// Models returns every table owned by the trust core, in migration order.
func Models() []any {
	return []any{&User{}, &Session{}, &Post{}, &Comment{}, &Report{}}
}
