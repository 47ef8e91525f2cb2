// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tlv

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateMarkdown renders the registry as a Markdown reference document,
// grouped by domain, for human consumption. It is a static artifact, not a
// runtime dependency — typically piped to a docs/ file by a generate step.
func GenerateMarkdown() string {
	var sb strings.Builder
	domains := []Domain{DomainMarketData, DomainSignal, DomainExecution, DomainSystem}
	sb.WriteString("# Protocol V2 TLV type registry\n\n")
	for _, d := range domains {
		types := TypesInDomain(d)
		if len(types) == 0 {
			continue
		}
		sort.Slice(types, func(i, j int) bool { return types[i].Type < types[j].Type })
		fmt.Fprintf(&sb, "## %s\n\n", d)
		sb.WriteString("| Type | Name | Description | Size | Status |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, m := range types {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n", m.Type, m.Name, m.Desc, m.Constraint, m.Status)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
