package svdresolve_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSvdresolve(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Svdresolve Suite")
}
