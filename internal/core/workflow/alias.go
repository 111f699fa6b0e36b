// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workflow

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
)

// alias publishes the value under one context key under a second key.
type alias struct {
	cor.BaseCommand
}

func newAlias(name, from, to string) *alias {
	out := &alias{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = from
	out.OutputParamName = to
	return out
}

func (a *alias) Execute(context cor.Context) {
	context.Add(a.GetOutputParam(), context.Get(a.GetInputParam()))
	a.Succeed(context)
}
