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

package state

import "fmt"

type ErrEntityNotFound struct {
	GUID string
}

func (e ErrEntityNotFound) Error() string {
	return fmt.Sprintf("Entity not found: %s", e.GUID)
}

type ErrBucketNotFound struct {
	Bucket string
}

func (e ErrBucketNotFound) Error() string {
	return fmt.Sprintf("Bucket not found: %s", e.Bucket)
}

type ErrBadGUID struct {
	GUID string
}

func (e ErrBadGUID) Error() string {
	return fmt.Sprintf("Wrong entity GUID: %s", e.GUID)
}
