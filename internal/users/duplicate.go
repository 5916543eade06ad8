package users

import "github.com/zatgpt/zatgpt-backend/pkg/db"

// uniqueFields maps columns guarded by a unique constraint to their request
// field names. Columns are matched against postgres constraint names
// (users_handle_key) and sqlite messages (users.handle).
var uniqueFields = []struct {
	column string
	field  string
}{
	{"handle", "username"},
	{"account", "account"},
	{"email", "email"},
	{"identity", "uuid"},
}

// DuplicateField reports which unique user field err violated, using the
// name clients send it under.
func DuplicateField(err error) (string, bool) {
	for _, f := range uniqueFields {
		if db.IsUniqueViolation(err, f.column) {
			return f.field, true
		}
	}
	return "", db.IsUniqueViolation(err, "")
}
