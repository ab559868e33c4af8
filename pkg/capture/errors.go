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

package capture

import "fmt"

type ErrCaptureFormat struct {
	Reason string
}

func (e ErrCaptureFormat) Error() string {
	return fmt.Sprintf("Not a pcap or pcapng capture: %s", e.Reason)
}

type ErrCaptureRead struct {
	Packet int
	Err    error
}

func (e ErrCaptureRead) Error() string {
	return fmt.Sprintf("Error while reading packet %d: %s", e.Packet, e.Err)
}

func (e ErrCaptureRead) Unwrap() error {
	return e.Err
}
