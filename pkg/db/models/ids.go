package models

import "github.com/google/uuid"

// assignID fills a zero primary key before insert. Postgres also defaults ids
// with gen_random_uuid(); assigning here keeps the value available to callers
// without a RETURNING round trip.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
