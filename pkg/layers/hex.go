/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package layers

import (
	"encoding/hex"
	"strings"
)

var hexSeparators = strings.NewReplacer(" ", "", ":", "", "-", "", "\n", "", "\t", "")

// ParseHex parses a payload written as hex bytes, e.g. "fa 00 00 38" or "0xfa000038"
func ParseHex(s string) ([]byte, error) {
	s = hexSeparators.Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
