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

package earthengine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive
	. "github.com/onsi/gomega"    //nolint:revive
	"github.com/pact-foundation/pact-go/v2/consumer"
	"github.com/pact-foundation/pact-go/v2/matchers"

	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

const (
	projectID = "ee-test"
	root      = "projects/ee-test/assets"
)

var testingT *testing.T //nolint:gochecknoglobals

func TestContracts(t *testing.T) { //nolint:paralleltest
	testingT = t

	RegisterFailHandler(Fail)
	RunSpecs(t, "Earth Engine Consumer Contract Suite")
}

// createClient creates an API client for the mock server.
func createClient(c consumer.MockServerConfig) *earthengine.Client {
	url := fmt.Sprintf("http://%s", net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port)))

	return earthengine.NewWithHTTPClient(&config.Config{BaseURL: url, RequestsPerSecond: 100}, projectID, http.DefaultClient)
}

// body renders a request exactly as the client sends it.
func body(v any) map[string]any {
	data, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())

	var out map[string]any

	Expect(json.Unmarshal(data, &out)).To(Succeed())

	return out
}

var _ = Describe("Earth Engine API Contract", func() {
	var (
		pact *consumer.V4HTTPMockProvider
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		pact, err = consumer.NewV4Pact(consumer.MockHTTPProviderConfig{
			Consumer: "geefixture",
			Provider: "earthengine",
			PactDir:  "../pacts",
		})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("Computation", func() {
		It("computes a value", func() {
			expression := ee.Build(ee.NewList(1, 2, 3).Size())

			pact.AddInteraction().
				Given("the project exists").
				UponReceiving("a request to compute a value").
				WithRequest("POST", "/v1/projects/ee-test/value:compute", func(b *consumer.V4RequestBuilder) {
					b.JSONBody(body(&earthengine.ComputeValueRequest{Expression: expression}))
				}).
				WillRespondWith(200, func(b *consumer.V4ResponseBuilder) {
					b.JSONBody(map[string]interface{}{
						"result": matchers.Integer(3),
					})
				})

			test := func(c consumer.MockServerConfig) error {
				value, err := createClient(c).ComputeValue(ctx, expression)
				if err != nil {
					return fmt.Errorf("computing value: %w", err)
				}

				Expect(value).To(Equal(json.Number("3")))

				return nil
			}

			Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
		})
	})

	Describe("Assets", func() {
		Context("when creating a folder", func() {
			It("creates the folder", func() {
				pact.AddInteraction().
					Given("the project exists").
					UponReceiving("a request to create a folder").
					WithRequest("POST", "/v1/projects/ee-test/assets", func(b *consumer.V4RequestBuilder) {
						b.Query("assetId", matchers.String("abc"))
						b.JSONBody(body(&earthengine.Asset{Type: earthengine.AssetTypeFolder}))
					}).
					WillRespondWith(200, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(map[string]interface{}{
							"type": matchers.String("FOLDER"),
							"name": matchers.String(root + "/abc"),
							"id":   matchers.String("abc"),
						})
					})

				test := func(c consumer.MockServerConfig) error {
					asset, err := createClient(c).CreateAsset(ctx, root+"/abc", earthengine.AssetTypeFolder)
					if err != nil {
						return fmt.Errorf("creating folder: %w", err)
					}

					Expect(asset.Name).To(Equal(root + "/abc"))
					Expect(asset.Type.Container()).To(BeTrue())

					return nil
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})

		Context("when listing a folder", func() {
			It("returns the children", func() {
				pact.AddInteraction().
					Given("the folder abc holds an image").
					UponReceiving("a request to list a folder").
					WithRequest("GET", "/v1/projects/ee-test/assets/abc:listAssets").
					WillRespondWith(200, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(map[string]interface{}{
							"assets": matchers.EachLike(map[string]interface{}{
								"type": matchers.String("IMAGE"),
								"name": matchers.String(root + "/abc/image"),
							}, 1),
						})
					})

				test := func(c consumer.MockServerConfig) error {
					assets, err := createClient(c).ListAssets(ctx, root+"/abc")
					if err != nil {
						return fmt.Errorf("listing assets: %w", err)
					}

					Expect(assets).To(HaveLen(1))
					Expect(assets[0].Type).To(Equal(earthengine.AssetTypeImage))

					return nil
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})

		Context("when reading a missing asset", func() {
			It("reports not found", func() {
				pact.AddInteraction().
					Given("the asset missing does not exist").
					UponReceiving("a request for a missing asset").
					WithRequest("GET", "/v1/projects/ee-test/assets/missing").
					WillRespondWith(404, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(map[string]interface{}{
							"error": map[string]interface{}{
								"code":    matchers.Integer(404),
								"message": matchers.String("Asset not found."),
								"status":  matchers.String("NOT_FOUND"),
							},
						})
					})

				test := func(c consumer.MockServerConfig) error {
					_, err := createClient(c).GetAsset(ctx, root+"/missing")
					Expect(err).To(MatchError(earthengine.ErrNotFound))

					return nil
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})

		Context("when deleting an asset", func() {
			It("deletes it", func() {
				pact.AddInteraction().
					Given("the asset abc/image exists").
					UponReceiving("a request to delete an asset").
					WithRequest("DELETE", "/v1/projects/ee-test/assets/abc/image").
					WillRespondWith(200, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(map[string]interface{}{})
					})

				test := func(c consumer.MockServerConfig) error {
					return createClient(c).DeleteAsset(ctx, root+"/abc/image")
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})
	})

	Describe("Operations", func() {
		It("reads the export state", func() {
			pact.AddInteraction().
				Given("an image export is running").
				UponReceiving("a request for an operation").
				WithRequest("GET", "/v1/projects/ee-test/operations/EXPORT1").
				WillRespondWith(200, func(b *consumer.V4ResponseBuilder) {
					b.JSONBody(map[string]interface{}{
						"name": matchers.String("projects/ee-test/operations/EXPORT1"),
						"metadata": map[string]interface{}{
							"state":       matchers.Term("RUNNING", "^(PENDING|RUNNING|CANCELLING|SUCCEEDED|CANCELLED|FAILED)$"),
							"description": matchers.String("abc_image"),
							"type":        matchers.String("EXPORT_IMAGE"),
						},
					})
				})

			test := func(c consumer.MockServerConfig) error {
				operation, err := createClient(c).GetOperation(ctx, "projects/ee-test/operations/EXPORT1")
				if err != nil {
					return fmt.Errorf("reading operation: %w", err)
				}

				Expect(operation.Metadata.State).To(Equal(earthengine.StateRunning))
				Expect(operation.Metadata.Description).To(Equal("abc_image"))

				return nil
			}

			Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
		})
	})
})
