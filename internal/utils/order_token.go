package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/yukikurage/printshop-manager/internal/constants"
)

// GenerateOrderToken returns a customer-facing order reference such as SDP-4821.
// The number is uniform in 1000..9999 and is not guaranteed unique.
func GenerateOrderToken() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%s%d", constants.OrderTokenPrefix, n.Int64()+1000), nil
}
