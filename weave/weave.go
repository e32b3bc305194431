// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package weave rewrites module source at load time so that calls to the
// process-global drivermgr registry reach the module-aware thunk instead,
// with the calling module's identifier appended as an extra argument.
//
// The rewriter resolves the called package purely through the file's own
// import table. It never type-checks and never loads the imported packages:
// a file is woven, or left alone, based on what its source says.
package weave

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

const (
	// LegacyPath is the import path whose calls get redirected.
	LegacyPath = "drivergate/drivermgr"

	// ThunkPath is the import path of the redirection target.
	ThunkPath = "drivergate/thunk"
)

// eligible maps redirectable function names to their argument count. Both
// packages declare these names with the thunk variant taking one trailing
// argument more; anything else stays untouched.
var eligible = map[string]int{
	"Register":       1,
	"RegisterAction": 2,
	"Deregister":     1,
	"Drivers":        0,
	"DriverFor":      1,
	"Connect":        3,
	"ConnectCreds":   4,
}

// Weaver transforms single source files.
type Weaver struct {
	legacyPath string
	thunkPath  string
}

// NewWeaver creates a weaver with the default redirection paths.
func NewWeaver() *Weaver {
	return &Weaver{legacyPath: LegacyPath, thunkPath: ThunkPath}
}

// Transform rewrites the eligible calls in the given source, attributing
// them to the calling module. It returns the resulting source and whether
// anything changed; unmodified input comes back byte-for-byte. An error
// means the input could not be processed and the caller should keep the
// original.
func (w *Weaver) Transform(filename string, src []byte, caller int64) ([]byte, bool, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return src, false, fmt.Errorf("weave %s: %w", filename, err)
	}

	legacyAlias, ok := importAlias(file, w.legacyPath)
	if !ok {
		return src, false, nil
	}

	thunkAlias, imported := importAlias(file, w.thunkPath)
	if !imported {
		thunkAlias = "thunk"
	}

	modified := false
	astutil.Apply(file, func(cursor *astutil.Cursor) bool {
		call, ok := cursor.Node().(*ast.CallExpr)
		if !ok {
			return true
		}

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		pkg, ok := sel.X.(*ast.Ident)
		if !ok || pkg.Name != legacyAlias || pkg.Obj != nil {
			// Not the imported package, or a local shadowing it.
			return true
		}

		arity, ok := eligible[sel.Sel.Name]
		if !ok || len(call.Args) != arity || call.Ellipsis.IsValid() {
			return true
		}

		sel.X = &ast.Ident{Name: thunkAlias, NamePos: pkg.NamePos}
		call.Args = append(call.Args, callerLiteral(caller))
		modified = true
		return true
	}, nil)

	if !modified {
		return src, false, nil
	}

	if !imported {
		astutil.AddImport(fset, file, w.thunkPath)
	}
	if !astutil.UsesImport(file, w.legacyPath) {
		astutil.DeleteImport(fset, file, w.legacyPath)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return src, false, fmt.Errorf("weave %s: %w", filename, err)
	}
	return buf.Bytes(), true, nil
}

// importAlias finds the name the file refers to the imported path by. Dot
// and blank imports cannot carry redirected calls, so they report no alias.
func importAlias(file *ast.File, path string) (string, bool) {
	for _, spec := range file.Imports {
		imported, err := strconv.Unquote(spec.Path.Value)
		if err != nil || imported != path {
			continue
		}
		if spec.Name == nil {
			if i := strings.LastIndex(path, "/"); i >= 0 {
				return path[i+1:], true
			}
			return path, true
		}
		if spec.Name.Name == "." || spec.Name.Name == "_" {
			return "", false
		}
		return spec.Name.Name, true
	}
	return "", false
}

func callerLiteral(caller int64) ast.Expr {
	if caller < 0 {
		return &ast.UnaryExpr{
			Op: token.SUB,
			X:  &ast.BasicLit{Kind: token.INT, Value: strconv.FormatInt(-caller, 10)},
		}
	}
	return &ast.BasicLit{Kind: token.INT, Value: strconv.FormatInt(caller, 10)}
}
