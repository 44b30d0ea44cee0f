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

// Package ws drives WebSocket connections on top of package upgrade.
//
// A handler negotiates the upgrade and hands a function the connection:
//
//	func echo(ctx context.Context, r *http.Request) (*web.Response, error) {
//		up, err := ws.NewUpgrade(r)
//		if err != nil {
//			return nil, err
//		}
//		return up.OnUpgrade(ctx, func(ctx context.Context, conn *ws.Conn) {
//			for {
//				msg, err := conn.Recv(ctx)
//				if err != nil {
//					return
//				}
//				if err := conn.Send(msg); err != nil {
//					return
//				}
//			}
//		})
//	}
//
// Frames are encoded with github.com/gobwas/ws.
package ws
