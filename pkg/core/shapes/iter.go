package shapes

import "iter"

// Iter iterates sequentially (row-major) over all indices of the shape.
//
// It yields the flat index and the slice of indices for each axis. The slice is owned by Iter:
// don't change it inside the loop.
func (s Shape) Iter() iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		indices := make([]int, s.Rank())
		size := s.Size()
		for flat := 0; flat < size; flat++ {
			if !yield(flat, indices) {
				return
			}
			for axis := s.Rank() - 1; axis >= 0; axis-- {
				indices[axis]++
				if indices[axis] < s.Dimensions[axis] {
					break
				}
				indices[axis] = 0
			}
		}
	}
}
