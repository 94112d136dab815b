package simstate_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSimstate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "simstate suite")
}
