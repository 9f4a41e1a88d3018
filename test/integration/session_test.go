/*
Copyright 2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

//nolint:revive,staticcheck // dot imports are standard for Ginkgo
package integration

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/geefixture/pkg/assets"
	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

var _ = Describe("Session", func() {
	var ctx context.Context

	BeforeEach(func() {
		if shared == nil {
			Skip(skipReason)
		}

		ctx = context.Background()
	})

	It("should have a 32 character hash", func() {
		Expect(shared.Hash()).To(MatchRegexp(`^[0-9a-f]{32}$`))
	})

	It("should evaluate against the API", func() {
		value, err := shared.Evaluate(ctx, ee.NewNumber(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(json.Number("1")))
	})

	It("should carry the test structure", func() {
		Expect(shared.Structure()).To(HaveKey("folder"))
		Expect(shared.Structure()).To(HaveKey("ic"))

		folder, ok := shared.Structure()["folder"].(assets.Container)
		Expect(ok).To(BeTrue())
		Expect(folder.Children).To(HaveKey("image"))
		Expect(folder.Children).To(HaveKey("fc"))

		ic, ok := shared.Structure()["ic"].(assets.Container)
		Expect(ok).To(BeTrue())
		Expect(ic.Kind).To(Equal(assets.ImageCollection))
		Expect(ic.Children).To(HaveKey("image1"))
		Expect(ic.Children).To(HaveKey("image2"))
	})

	Context("When the test folder is created", func() {
		var folder string

		BeforeEach(func() {
			var err error

			folder, err = shared.TestFolder(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should live under the project root", func() {
			Expect(folder).To(Equal(shared.Root() + "/" + shared.Hash()))

			asset, err := shared.Client().GetAsset(ctx, folder)
			Expect(err).NotTo(HaveOccurred())
			Expect(asset.Type).To(Equal(earthengine.AssetTypeFolder))
		})

		It("should contain the exported assets", func() {
			found, err := assets.GetAssets(ctx, shared.Client(), folder)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, len(found))
			for i := range found {
				names[i] = found[i].Name
			}

			Expect(names).To(ContainElements(
				folder+"/folder",
				folder+"/folder/image",
				folder+"/folder/fc",
				folder+"/ic",
			))
		})

		It("should plan the deletion without deleting", func() {
			names, err := assets.DeleteAssets(ctx, shared.Client(), folder, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(names[len(names)-1]).To(Equal(folder))

			_, err = shared.Client().GetAsset(ctx, folder)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
