// Copyright 2025 The Rivaas Authors
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

// Package static serves files as web handlers.
//
// File serves one file. Dir and FS serve a tree, naming the file by the
// request path or by a path parameter:
//
//	r := router.New().
//		Route("/favicon.ico", static.File("./public/favicon.ico")).
//		Scope("/assets", static.Dir("./public")).
//		Route("/docs/{*page}", static.FS(docs, static.WithParam("page")))
//
// Responses carry Last-Modified, Content-Type and Accept-Ranges. The
// If-Modified-Since, If-Unmodified-Since and If-Range conditions are
// honored, as is the first range of a bytes Range header. Paths that try
// to climb out of the tree are treated as missing.
package static
