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

package core

import (
	"context"
	"fmt"

	. "github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/syntax"
	. "github.com/Comcast/casematch/util/testutil"
)

// Example demonstrates Case()ing.
func Example() {
	env := syntax.NewEnv(nil)
	a, b := env.Var("a"), env.Var("b")

	sc := NewScope()
	leave := sc.Enter([]interface{}{1, 2, 3})
	defer leave()

	won, _ := Case(sc,
		syntax.MustParse("(a, a, _)", env),
		syntax.MustParse("(1, a, b)", env))

	fmt.Println(won, a.Get(), b.Get())
	// Output: true 2 3
}

// ExampleTable_Eval demonstrates Eval()ing a Table with a guard.
func ExampleTable_Eval() {
	t := &Table{
		Name: "sizes",
		Cases: []*CaseSpec{
			{
				Name:    "big",
				Pattern: `{"n": n, **_}`,
				Guard: When(func(bs Bindings) bool {
					n, is := bs["n"].(float64)
					return is && 100 <= n
				}),
				Emit: "big",
			},
			{
				Name:    "any",
				Pattern: `{"n": n, **_}`,
				Emit:    map[string]interface{}{"small": "$n"},
			},
		},
	}

	ctx := context.Background()
	if err := t.Compile(ctx, nil, nil, true); err != nil {
		panic(err)
	}

	out, err := t.Eval(ctx, Dwimjs(`{"n":3,"color":"red"}`))
	if err != nil {
		panic(err)
	}

	fmt.Println(out.Status, out.Name, JS(out.Bs), JS(out.Emitted))
	// Output: matched any {"n":3} [{"small":3}]
}
