package builtins

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/lumenforge/lumen/values"
)

// registerHashFunctions wires spec section 4.9's "Hashing & crypto"
// bullet. uuid_v4 is the DOMAIN STACK's home for google/uuid (see
// DESIGN.md / SPEC_FULL.md section B).
func (r *Registry) registerHashFunctions() {
	r.defID("sha256", 100, biSha256)
	r.defID("sha512", 101, biSha512)
	r.defID("uuid_v4", 102, biUUIDv4)
	r.defID("timestamp", 103, biTimestamp)
}

func biSha256(r *Registry, args []values.Value) (values.Value, error) {
	b, err := r.bytesArg("sha256", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	sum := sha256.Sum256(b)
	return values.Str(hex.EncodeToString(sum[:])), nil
}

func biSha512(r *Registry, args []values.Value) (values.Value, error) {
	b, err := r.bytesArg("sha512", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	sum := sha512.Sum512(b)
	return values.Str(hex.EncodeToString(sum[:])), nil
}

func biUUIDv4(r *Registry, args []values.Value) (values.Value, error) {
	return values.Str(uuid.New().String()), nil
}

func biTimestamp(r *Registry, args []values.Value) (values.Value, error) {
	return values.Int(time.Now().Unix()), nil
}
