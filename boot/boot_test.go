package boot_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/boot"
	"github.com/sarchlab/pouchvm/env"
)

var _ = Describe("Image encode/decode", func() {
	It("round-trips a synthetic image through gzip", func() {
		img := &boot.Image{
			GameVersion: env.X150,
			Segments: []boot.Segment{
				{Kind: boot.SegText, LoadAddr: 0, Size: 4, Bytes: []byte{1, 2, 3, 4}},
			},
			Singletons: []boot.SingletonRecord{{Name: "pmdm"}},
		}
		encoded := boot.Encode(img)
		decoded, err := boot.Decode(bytes.NewReader(encoded))
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.GameVersion).To(Equal(env.X150))
		Expect(decoded.Segments).To(HaveLen(1))
		Expect(decoded.Segments[0].Bytes).To(Equal([]byte{1, 2, 3, 4}))
		Expect(decoded.Singletons[0].Name).To(Equal("pmdm"))
	})
})

var _ = Describe("Load", func() {
	It("places pmdm's singleton instance at the configured address", func() {
		img := &boot.Image{GameVersion: env.X150}
		proc, err := boot.Load(img, boot.Params{PMDMAddr: 0x38a0000}, env.DLCNone)
		Expect(err).NotTo(HaveOccurred())

		instance, err := proc.SingletonInstance("pmdm")
		Expect(err).NotTo(HaveOccurred())
		Expect(instance).To(Equal(uint64(0x38a0000)))

		vtable, err := proc.SingletonVTable("pmdm")
		Expect(err).NotTo(HaveOccurred())
		Expect(vtable).To(Equal(proc.MainStart + 0x2476c38))
	})

	It("loads a read/execute text segment despite its pages lacking write permission", func() {
		img := &boot.Image{
			GameVersion: env.X150,
			Segments: []boot.Segment{
				{Kind: boot.SegText, LoadAddr: 0, Size: 8, Bytes: make([]byte, 8)},
			},
		}
		_, err := boot.Load(img, boot.Params{}, env.DLCNone)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("ParamsFromYAML", func() {
	It("decodes a config file's fields into Params", func() {
		data := []byte("program_start: 0x2000000\nstack_size: 65536\npmdm_addr: 0x38a0000\n")
		p, err := boot.ParamsFromYAML(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.ProgramStart).To(Equal(uint64(0x2000000)))
		Expect(p.StackSize).To(Equal(uint32(65536)))
		Expect(p.PMDMAddr).To(Equal(uint64(0x38a0000)))
	})

	It("rejects malformed YAML", func() {
		_, err := boot.ParamsFromYAML([]byte("not: [valid"))
		Expect(err).To(HaveOccurred())
	})
})
