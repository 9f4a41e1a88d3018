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
package assets_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/geefixture/pkg/assets"
	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/earthengine/fake"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

func testImage() *ee.Image {
	return ee.NewImage(1).ClipToBoundsAndScale(ee.Point(0, 0).Buffer(100, nil), 30)
}

func testTree() assets.Tree {
	return assets.Tree{
		"folder": assets.Container{
			Kind: assets.Folder,
			Children: assets.Tree{
				"image": assets.Leaf{Object: testImage()},
				"fc":    assets.Leaf{Object: ee.NewFeatureCollection(ee.Point(0, 0))},
			},
		},
		"ic": assets.Container{
			Kind: assets.ImageCollection,
			Children: assets.Tree{
				"image1": assets.Leaf{Object: testImage()},
				"image2": assets.Leaf{Object: testImage()},
			},
		},
	}
}

func fastOptions() *assets.Options {
	return &assets.Options{
		PollInterval: 10 * time.Millisecond,
		Timeout:      5 * time.Second,
	}
}

var _ = Describe("Asset trees", func() {
	var (
		ctx    context.Context
		server *fake.Server
		client *earthengine.Client
	)

	start := func(options ...fake.Option) {
		server = fake.New("ee-test", options...)
		DeferCleanup(server.Close)

		client = server.NewClient(&config.Config{RequestsPerSecond: 1000})
	}

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("When exports succeed", func() {
		var folder string

		BeforeEach(func() {
			start(fake.WithExportStates(earthengine.StatePending, earthengine.StateRunning, earthengine.StateSucceeded))

			var err error

			folder, err = assets.InitTree(ctx, client, testTree(), "abc123", server.Root(), fastOptions())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should create the folder under the root", func() {
			Expect(folder).To(Equal(server.Root() + "/abc123"))
		})

		It("should create every container and leaf", func() {
			found, err := assets.GetAssets(ctx, client, folder)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, len(found))
			for i := range found {
				names[i] = found[i].Name
			}

			Expect(names).To(Equal([]string{
				folder + "/folder",
				folder + "/folder/fc",
				folder + "/folder/image",
				folder + "/ic",
				folder + "/ic/image1",
				folder + "/ic/image2",
			}))

			Expect(found[0].Type).To(Equal(earthengine.AssetTypeFolder))
			Expect(found[1].Type).To(Equal(earthengine.AssetTypeTable))
			Expect(found[2].Type).To(Equal(earthengine.AssetTypeImage))
			Expect(found[3].Type).To(Equal(earthengine.AssetTypeImageCollection))
		})

		It("should describe export tasks by prefix and name", func() {
			Expect(server.Calls("EXPORT_IMAGE")).To(Equal(3))
			Expect(server.Calls("EXPORT_FEATURES")).To(Equal(1))

			task, err := assets.GetTask(ctx, client, "abc123_image1")
			Expect(err).NotTo(HaveOccurred())
			Expect(task).NotTo(BeNil())
			Expect(task.Metadata.TaskType).To(Equal("EXPORT_IMAGE"))
			Expect(task.Metadata.State).To(Equal(earthengine.StateSucceeded))
		})

		It("should list deletions without deleting on a dry run", func() {
			names, err := assets.DeleteAssets(ctx, client, folder, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(HaveLen(7))
			Expect(names[len(names)-1]).To(Equal(folder))
			Expect(server.Deleted()).To(BeEmpty())
			Expect(server.Calls("deleteAsset")).To(BeZero())
		})

		It("should delete the deepest assets first", func() {
			planned, err := assets.DeleteAssets(ctx, client, folder, true)
			Expect(err).NotTo(HaveOccurred())

			names, err := assets.DeleteAssets(ctx, client, folder, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal(planned))

			Expect(server.Deleted()).To(Equal([]string{
				folder + "/folder/fc",
				folder + "/folder/image",
				folder + "/ic/image1",
				folder + "/ic/image2",
				folder + "/folder",
				folder + "/ic",
				folder,
			}))
			Expect(server.Assets()).To(BeEmpty())
		})

		It("should delete a single leaf", func() {
			names, err := assets.DeleteAssets(ctx, client, folder+"/ic/image1", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{folder + "/ic/image1"}))
			Expect(server.Assets()).NotTo(ContainElement(folder + "/ic/image1"))
		})
	})

	Context("When the folder already exists", func() {
		BeforeEach(func() {
			start()
			server.AddAsset(server.Root()+"/taken", earthengine.AssetTypeFolder)
		})

		It("should return no folder", func() {
			folder, err := assets.InitTree(ctx, client, testTree(), "taken", server.Root(), fastOptions())
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(earthengine.ErrRequest))
			Expect(folder).To(BeEmpty())
		})
	})

	Context("When an export fails", func() {
		BeforeEach(func() {
			start(fake.WithExportStates(earthengine.StateRunning, earthengine.StateFailed))
		})

		It("should stop and return the folder for cleanup", func() {
			folder, err := assets.InitTree(ctx, client, testTree(), "broken", server.Root(), fastOptions())
			Expect(err).To(MatchError(assets.ErrExportFailed))
			Expect(folder).To(Equal(server.Root() + "/broken"))

			// The walk is ordered, so only the first leaf was attempted.
			Expect(server.Calls("EXPORT_FEATURES")).To(Equal(1))
			Expect(server.Calls("EXPORT_IMAGE")).To(BeZero())

			names, err := assets.DeleteAssets(ctx, client, folder, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{folder + "/folder", folder}))
		})
	})

	Context("When exports outlive the timeout", func() {
		BeforeEach(func() {
			start(fake.WithExportStates(earthengine.StateRunning))
		})

		It("should carry on with the remaining leaves", func() {
			options := &assets.Options{
				PollInterval: 10 * time.Millisecond,
				Timeout:      50 * time.Millisecond,
			}

			folder, err := assets.InitTree(ctx, client, testTree(), "slow", server.Root(), options)
			Expect(err).NotTo(HaveOccurred())
			Expect(folder).To(Equal(server.Root() + "/slow"))
			Expect(server.Calls("EXPORT_IMAGE")).To(Equal(3))
			Expect(server.Calls("EXPORT_FEATURES")).To(Equal(1))
			Expect(server.Assets()).To(Equal([]string{
				folder,
				folder + "/folder",
				folder + "/ic",
			}))
		})

		It("should return the last state whenever the deadline cuts a poll short", func() {
			operation, err := assets.Start(ctx, client, testImage(), server.Root()+"/image", "slow_image")
			Expect(err).NotTo(HaveOccurred())

			for range 10 {
				state, err := assets.WaitForTask(ctx, client, operation.Name, 10*time.Millisecond, 50*time.Millisecond)
				Expect(err).NotTo(HaveOccurred())
				Expect(state).To(Equal(earthengine.StateRunning))
			}
		})
	})
})
