package pass_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_validate_test.go github.com/sarchlab/fsmforge/validate Validator
func TestPass(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pass Suite")
}
