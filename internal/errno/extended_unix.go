// Copyright 2026 FaultFS Authors
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

//go:build unix

package errno

import "golang.org/x/sys/unix"

// extended descriptors exist on unix platforms only. ETXTBUSY is the
// directive spelling; the platform constant is ETXTBSY.
var extended = []Descriptor{
	{"EBUSY", unix.EBUSY},
	{"EDQUOT", unix.EDQUOT},
	{"EFBIG", unix.EFBIG},
	{"EMFILE", unix.EMFILE},
	{"EMLINK", unix.EMLINK},
	{"ENFILE", unix.ENFILE},
	{"ENODEV", unix.ENODEV},
	{"ENOTEMPTY", unix.ENOTEMPTY},
	{"ENXIO", unix.ENXIO},
	{"EOPNOTSUPP", unix.EOPNOTSUPP},
	{"EROFS", unix.EROFS},
	{"ESTALE", unix.ESTALE},
	{"ETXTBUSY", unix.ETXTBSY},
}
