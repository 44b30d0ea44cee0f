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

// Package upgrade implements HTTP protocol switching.
//
// A handler negotiates a Protocol against the request, returns the
// 101 Switching Protocols response, and receives the raw connection once
// the transport has written that response. The connection arrives as an
// Upgraded value that a protocol driver claims with Downcast:
//
//	up, err := upgrade.Negotiate(r, proto)
//	if err != nil {
//		return nil, err
//	}
//	return up.Spawn(ctx, func(ctx context.Context, u *upgrade.Upgraded) {
//		conn, err := upgrade.Downcast[*upgrade.HijackedConn](u)
//		if err != nil {
//			u.Close()
//			return
//		}
//		defer conn.Close()
//		// speak the new protocol on conn
//	})
//
// The transport side creates an OnUpgrade per request, stores it in the
// request context with WithOnUpgrade and resolves it after writing the
// switching response.
package upgrade
