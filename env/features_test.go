package env_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/env"
)

var _ = Describe("FeatureSet", func() {
	It("enables the documented defaults with no overrides", func() {
		var fs env.FeatureSet
		fs.InitFeatures(nil)

		Expect(fs.IsFeatureEnabled(env.FeatureMemStrictRegion)).To(BeTrue())
		Expect(fs.IsFeatureEnabled(env.FeatureMemPermission)).To(BeTrue())
		Expect(fs.IsFeatureEnabled(env.FeatureDivideByZero)).To(BeTrue())
		Expect(fs.IsFeatureEnabled(env.FeatureCheckStackFrames)).To(BeFalse())
	})

	It("lets an override flip a default off", func() {
		var fs env.FeatureSet
		fs.InitFeatures(map[env.Feature]bool{
			env.FeatureMemPermission: false,
			env.FeatureTraceCall:     true,
		})

		Expect(fs.IsFeatureEnabled(env.FeatureMemPermission)).To(BeFalse())
		Expect(fs.IsFeatureEnabled(env.FeatureTraceCall)).To(BeTrue())
		Expect(fs.IsFeatureEnabled(env.FeatureMemStrictRegion)).To(BeTrue())
	})

	It("panics on double initialization", func() {
		var fs env.FeatureSet
		fs.InitFeatures(nil)
		Expect(func() { fs.InitFeatures(nil) }).To(Panic())
	})
})

var _ = Describe("Env", func() {
	It("formats as version+dlc", func() {
		e := env.New(env.X160, env.DLCV300)
		Expect(e.String()).To(Equal("1.6.0+dlc(v300)"))
	})
})
