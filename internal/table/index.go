/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package table

// SortIndex returns the permutation of [0, len(ids)) that orders ids by Compare.
// It is a stable top-down merge sort; ids is left untouched.
func SortIndex(ids []string) []int {
	idx := make([]int, len(ids))
	for i := range idx {
		idx[i] = i
	}
	mergeSort(ids, idx, 0, len(idx)-1)
	return idx
}

func mergeSort(ids []string, idx []int, l, r int) {
	if l >= r {
		return
	}
	m := l + (r-l)/2
	mergeSort(ids, idx, l, m)
	mergeSort(ids, idx, m+1, r)
	merge(ids, idx, l, m, r)
}

func merge(ids []string, idx []int, l, m, r int) {
	left := append([]int(nil), idx[l:m+1]...)
	right := append([]int(nil), idx[m+1:r+1]...)

	i, j, k := 0, 0, l
	for i < len(left) && j < len(right) {
		// <= keeps equal ids in source order
		if Compare(ids[left[i]], ids[right[j]]) <= 0 {
			idx[k] = left[i]
			i++
		} else {
			idx[k] = right[j]
			j++
		}
		k++
	}
	k += copy(idx[k:], left[i:])
	copy(idx[k:], right[j:])
}
