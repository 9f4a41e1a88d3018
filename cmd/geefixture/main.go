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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/constants"
	"github.com/unikorn-cloud/geefixture/pkg/session"

	cr "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func main() {
	c, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	log.SetLogger(zap.New(zap.UseDevMode(c.DebugLogging)))

	logger := log.Log.WithName("init")
	logger.Info("starting", "application", constants.Application, "version", constants.Version, "revision", constants.Revision)

	ctx := log.IntoContext(cr.SetupSignalHandler(), log.Log)

	connect := func(ctx context.Context) (*session.Session, error) {
		return session.New(ctx, c)
	}

	if err := newRootCommand(c, connect).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
