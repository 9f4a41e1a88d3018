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

package earthengine

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints contains all API endpoint patterns.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// resource escapes each segment of a resource name, keeping the slashes.
func resource(name string) string {
	segments := strings.Split(name, "/")

	for i := range segments {
		segments[i] = url.PathEscape(segments[i])
	}

	return strings.Join(segments, "/")
}

// Computation endpoints.
func (e *Endpoints) ComputeValue(projectID string) string {
	return fmt.Sprintf("/v1/projects/%s/value:compute",
		url.PathEscape(projectID))
}

func (e *Endpoints) CreateThumbnail(projectID string) string {
	return fmt.Sprintf("/v1/projects/%s/thumbnails",
		url.PathEscape(projectID))
}

func (e *Endpoints) GetPixels(thumbnailName string) string {
	return fmt.Sprintf("/v1/%s:getPixels", resource(thumbnailName))
}

// Asset endpoints.
func (e *Endpoints) CreateAsset(projectID string) string {
	return fmt.Sprintf("/v1/projects/%s/assets",
		url.PathEscape(projectID))
}

func (e *Endpoints) Asset(name string) string {
	return "/v1/" + resource(name)
}

func (e *Endpoints) ListAssets(parent string) string {
	return fmt.Sprintf("/v1/%s:listAssets", resource(parent))
}

// Export endpoints.
func (e *Endpoints) ExportImage(projectID string) string {
	return fmt.Sprintf("/v1/projects/%s/image:export",
		url.PathEscape(projectID))
}

func (e *Endpoints) ExportTable(projectID string) string {
	return fmt.Sprintf("/v1/projects/%s/table:export",
		url.PathEscape(projectID))
}

// Operation endpoints.
func (e *Endpoints) Operation(name string) string {
	return "/v1/" + resource(name)
}

func (e *Endpoints) ListOperations(projectID string) string {
	return fmt.Sprintf("/v1/projects/%s/operations",
		url.PathEscape(projectID))
}
