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

package assets

import (
	"errors"
	"fmt"

	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

var (
	// ErrUnsupportedContainer is returned for container kinds that are
	// neither folders nor image collections.
	ErrUnsupportedContainer = errors.New("unsupported container kind")
)

// ContainerKind is the type of asset a container is created as.
type ContainerKind int

const (
	Folder ContainerKind = iota
	ImageCollection
)

func (k ContainerKind) String() string {
	switch k {
	case Folder:
		return "Folder"
	case ImageCollection:
		return "ImageCollection"
	}

	return fmt.Sprintf("ContainerKind(%d)", int(k))
}

// AssetType is the API asset type the container is created with.
func (k ContainerKind) AssetType() (earthengine.AssetType, error) {
	switch k {
	case Folder:
		return earthengine.AssetTypeFolder, nil
	case ImageCollection:
		return earthengine.AssetTypeImageCollection, nil
	}

	return "", fmt.Errorf("%w: %v", ErrUnsupportedContainer, k)
}

// ParseContainerKind reads a container kind as typed by an operator.
func ParseContainerKind(s string) (ContainerKind, error) {
	switch s {
	case "Folder":
		return Folder, nil
	case "ImageCollection":
		return ImageCollection, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrUnsupportedContainer, s)
}

// Node is an entry in a tree, either a Container or a Leaf.
type Node interface {
	node()
}

// Tree maps asset names to their content.
type Tree map[string]Node

// Container is a folder or image collection holding more nodes.
type Container struct {
	Kind     ContainerKind
	Children Tree
}

func (Container) node() {}

// Leaf is an image or feature collection exported as an asset.
type Leaf struct {
	Object ee.ComputedObject
}

func (Leaf) node() {}
