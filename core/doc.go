/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package core provides case selection over the patterns of package
// match.
//
// The primary function is Try.  Given a Scope whose current subject
// is the thing to examine, Try matches the subject against candidate
// patterns in order.  Each candidate gets fresh Slots.  The first
// candidate that matches (and that its optional Guard admits) wins,
// and only then are its bindings committed to their Vars.  A losing
// candidate leaves nothing behind.
//
// A Table is a declarative list of Cases, each with a pattern in the
// language of package syntax, an optional GuardSource, and an
// optional message to emit.  When a Table is Compiled, the compiler
// parses patterns and compiles guards.  A GuardSource specifies an
// Interpreter, which should know how to Compile and Exec the guard's
// source.  Alternately, a native Case can provide a Guard implemented
// in Go.
//
// Ideally a Guard does not block or perform any IO.  A Guard returns
// an Execution, which says whether the candidate is admitted, and
// which can include tracing and emitted messages.
//
// To use a Table, make one (or load one from YAML).  Then Compile()
// it.  Then Eval() subjects.  Eval doesn't modify the Table, so one
// Table can serve many goroutines.
package core
