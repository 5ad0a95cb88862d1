package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "lock:rifa:r1:0042", claimKey("r1", "0042"))
	assert.Equal(t, "idempotency:t1:u1:abc", idempotencyKey("t1:u1", "abc"))
	assert.Equal(t, "tenant:demo.rifas.local", tenantKey("demo.rifas.local"))
}
