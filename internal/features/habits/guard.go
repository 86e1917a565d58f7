package habits

import (
	"github.com/xyz-asif/habitstreak/internal/features/auth"
	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

// CanMutate reports whether caller may edit, complete or delete habit.
func CanMutate(caller auth.Caller, habit *Habit) bool {
	return habit.IsOwnedBy(auth.NormalizeEmail(caller.Email))
}

// CanRead reports whether caller may see habit. Public habits are readable by anyone.
func CanRead(caller auth.Caller, habit *Habit) bool {
	return habit.IsPublic || CanMutate(caller, habit)
}

// authorizeMutation hides private habits of other owners behind NotFound,
// the same answer GetByID gives, and rejects non-owners of public ones.
func authorizeMutation(caller auth.Caller, habit *Habit, forbidden string) error {
	if !CanRead(caller, habit) {
		return apperrors.NotFound("Habit not found")
	}
	if !CanMutate(caller, habit) {
		return apperrors.Forbidden(forbidden)
	}
	return nil
}
