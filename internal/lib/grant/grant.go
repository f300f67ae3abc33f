// Package grant содержит чистую функцию оценки действия временного гранта.
package grant

import "time"

// IsActive сообщает, действует ли грант в момент now.
// Граница строгая: в сам момент expiry грант уже не действует.
func IsActive(now, expiry time.Time) bool {
	return now.Before(expiry)
}
