// ViolationFilter narrows audit log queries.
package dto

import "time"

type ViolationFilter struct {
	Source     string
	IdentityID *int64
	After      time.Time
	Before     time.Time
	Limit      int
	Offset     int
}
