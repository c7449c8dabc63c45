// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package testing provides fixture helpers for pipeline-stage tests.
//
// Unlike most of this repository's test helpers, nothing here is backed by
// a database: every pipeline stage is a pure function (or a thin HTTP
// client) over in-memory values, so the fixtures are plain constructors
// for the common query/token/product shapes used across package tests.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    q := testing.SampleQuery(testing.RomanizedHindi)
//	    // exercise a pipeline stage with q...
//	}
package testing
