package utils

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

// HWID identifies this machine to the server without leaking the raw machine id.
// Falls back to a per-process random id when the platform id is unavailable.
var HWID = func() string {
	id, err := machineid.ProtectedID("mergebox")
	if err != nil || id == "" {
		return uuid.NewString()
	}
	return id
}()
