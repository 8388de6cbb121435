/* Copyright 2018 Comcast Cable Communications Management, LLC
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

package sio

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"

	. "github.com/Comcast/casematch/util/testutil"
)

// JShort renders its argument as JS() but only up to 73 characters.
func JShort(x interface{}) string {
	js := JS(x)
	if 70 < len(js) {
		js = js[0:70] + "..."
	}
	return js
}

var shell = regexp.MustCompile(`<<(.*?)>>`)

// ShellExpand expands shell commands delimited by '<<' and '>>'.
//
// The output of each command replaces the command.  A trailing
// newline is not removed.
func ShellExpand(subject string) (string, error) {
	literals := shell.Split(subject, -1)
	acc := literals[0]
	for i, s := range shell.FindAllStringSubmatch(subject, -1) {
		cmd := exec.Command("bash", "-c", s[1])
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("shell error %s on %s", err, s[1])
		}
		acc += out.String() + literals[i+1]
	}
	return acc, nil
}
