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

package fault

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"faultfs/internal/errno"
)

// Configuration errors. All of them are fatal at load time: a directive that
// trips any of these aborts startup or reload, never degrades silently.
var (
	ErrUnsupportedCategory  = errors.New("unsupported fault category")
	ErrUnknownErrorName     = errors.New("unknown/unsupported error")
	ErrUnsupportedOperation = errors.New("unknown/unsupported filesystem operation")
	ErrDuplicateBinding     = errors.New("fault configuration already exists")
)

// CategoryFilesystem is the only fault category recognized today. The
// category token is a closed set reserved for future kinds of injection
// (e.g. network I/O).
const CategoryFilesystem = "filesystem"

// Apply validates one FaultInject directive, already tokenized by the
// configuration loader, and commits its bindings into table.
//
// Validation and commit are interleaved per operation token: when a later
// token is invalid, bindings committed for earlier tokens in the same
// directive remain in place and the directive as a whole fails. Since every
// configuration error aborts the load, the partially-filled table is
// discarded with the failed generation and never serves a session.
func Apply(table *Table, category, errText string, opers []string) error {
	if !strings.EqualFold(category, CategoryFilesystem) {
		return fmt.Errorf("%w: %q", ErrUnsupportedCategory, category)
	}

	code, err := lookupCode(errText)
	if err != nil {
		return err
	}

	if len(opers) == 0 {
		return fmt.Errorf("%w: directive names no operations", ErrUnsupportedOperation)
	}

	for _, oper := range opers {
		op := strings.ToLower(oper)
		if !Supported(op) {
			return fmt.Errorf("%w: %q", ErrUnsupportedOperation, oper)
		}
		if err := table.Bind(op, code); err != nil {
			return err
		}
	}

	return nil
}

// lookupCode resolves the directive's error token through the registry,
// reporting misses as configuration errors.
func lookupCode(text string) (syscall.Errno, error) {
	code, err := errno.Code(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownErrorName, text)
	}
	return code, nil
}
