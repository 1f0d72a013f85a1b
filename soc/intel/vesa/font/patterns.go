// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package font

// patterns covers space, digits, uppercase letters, and the punctuation
// common in window titles and the taskbar (spec.md §4.7/§4.8 text). Each
// entry is 7 rows of 5 columns, '#' set / '.' clear. Lowercase letters
// alias their uppercase glyph — a small bitmap font at this cell size has
// no room for a legible case distinction, matching the teacher's CP-866
// console convention of a single-case glyph set for box-drawing/UI text.
var patterns = map[rune][patternRows]string{
	' ': {
		".....",
		".....",
		".....",
		".....",
		".....",
		".....",
		".....",
	},
	'0': {
		".###.",
		"#...#",
		"#..##",
		"#.#.#",
		"##..#",
		"#...#",
		".###.",
	},
	'1': {
		"..#..",
		".##..",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		".###.",
	},
	'2': {
		".###.",
		"#...#",
		"....#",
		"...#.",
		"..#..",
		".#...",
		"#####",
	},
	'3': {
		".###.",
		"#...#",
		"....#",
		"..##.",
		"....#",
		"#...#",
		".###.",
	},
	'4': {
		"...#.",
		"..##.",
		".#.#.",
		"#..#.",
		"#####",
		"...#.",
		"...#.",
	},
	'5': {
		"#####",
		"#....",
		"####.",
		"....#",
		"....#",
		"#...#",
		".###.",
	},
	'6': {
		"..##.",
		".#...",
		"#....",
		"####.",
		"#...#",
		"#...#",
		".###.",
	},
	'7': {
		"#####",
		"....#",
		"...#.",
		"..#..",
		".#...",
		".#...",
		".#...",
	},
	'8': {
		".###.",
		"#...#",
		"#...#",
		".###.",
		"#...#",
		"#...#",
		".###.",
	},
	'9': {
		".###.",
		"#...#",
		"#...#",
		".####",
		"....#",
		"...#.",
		".##..",
	},
	'A': {
		"..#..",
		".#.#.",
		"#...#",
		"#...#",
		"#####",
		"#...#",
		"#...#",
	},
	'B': {
		"####.",
		"#...#",
		"#...#",
		"####.",
		"#...#",
		"#...#",
		"####.",
	},
	'C': {
		".###.",
		"#...#",
		"#....",
		"#....",
		"#....",
		"#...#",
		".###.",
	},
	'D': {
		"####.",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		"####.",
	},
	'E': {
		"#####",
		"#....",
		"#....",
		"####.",
		"#....",
		"#....",
		"#####",
	},
	'F': {
		"#####",
		"#....",
		"#....",
		"####.",
		"#....",
		"#....",
		"#....",
	},
	'G': {
		".###.",
		"#...#",
		"#....",
		"#.###",
		"#...#",
		"#...#",
		".###.",
	},
	'H': {
		"#...#",
		"#...#",
		"#...#",
		"#####",
		"#...#",
		"#...#",
		"#...#",
	},
	'I': {
		".###.",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		".###.",
	},
	'J': {
		"....#",
		"....#",
		"....#",
		"....#",
		"#...#",
		"#...#",
		".###.",
	},
	'K': {
		"#...#",
		"#..#.",
		"#.#..",
		"##...",
		"#.#..",
		"#..#.",
		"#...#",
	},
	'L': {
		"#....",
		"#....",
		"#....",
		"#....",
		"#....",
		"#....",
		"#####",
	},
	'M': {
		"#...#",
		"##.##",
		"#.#.#",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
	},
	'N': {
		"#...#",
		"##..#",
		"#.#.#",
		"#..##",
		"#...#",
		"#...#",
		"#...#",
	},
	'O': {
		".###.",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		".###.",
	},
	'P': {
		"####.",
		"#...#",
		"#...#",
		"####.",
		"#....",
		"#....",
		"#....",
	},
	'Q': {
		".###.",
		"#...#",
		"#...#",
		"#...#",
		"#.#.#",
		"#..#.",
		".##.#",
	},
	'R': {
		"####.",
		"#...#",
		"#...#",
		"####.",
		"#.#..",
		"#..#.",
		"#...#",
	},
	'S': {
		".####",
		"#....",
		"#....",
		".###.",
		"....#",
		"....#",
		"####.",
	},
	'T': {
		"#####",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
	},
	'U': {
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		".###.",
	},
	'V': {
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		"#...#",
		".#.#.",
		"..#..",
	},
	'W': {
		"#...#",
		"#...#",
		"#...#",
		"#.#.#",
		"#.#.#",
		"##.##",
		"#...#",
	},
	'X': {
		"#...#",
		".#.#.",
		"..#..",
		"..#..",
		"..#..",
		".#.#.",
		"#...#",
	},
	'Y': {
		"#...#",
		"#...#",
		".#.#.",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
	},
	'Z': {
		"#####",
		"....#",
		"...#.",
		"..#..",
		".#...",
		"#....",
		"#####",
	},
	'.': {
		".....",
		".....",
		".....",
		".....",
		".....",
		".##..",
		".##..",
	},
	',': {
		".....",
		".....",
		".....",
		".....",
		".....",
		".##..",
		"..#..",
	},
	':': {
		".....",
		".##..",
		".##..",
		".....",
		".##..",
		".##..",
		".....",
	},
	';': {
		".....",
		".##..",
		".##..",
		".....",
		".##..",
		"..#..",
		".....",
	},
	'!': {
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		".....",
		"..#..",
	},
	'?': {
		".###.",
		"#...#",
		"...#.",
		"..#..",
		"..#..",
		".....",
		"..#..",
	},
	'-': {
		".....",
		".....",
		".....",
		"#####",
		".....",
		".....",
		".....",
	},
	'+': {
		".....",
		"..#..",
		"..#..",
		"#####",
		"..#..",
		"..#..",
		".....",
	},
	'*': {
		".....",
		"#.#.#",
		".###.",
		"#####",
		".###.",
		"#.#.#",
		".....",
	},
	'/': {
		"....#",
		"...#.",
		"...#.",
		"..#..",
		".#...",
		".#...",
		"#....",
	},
	'=': {
		".....",
		".....",
		"#####",
		".....",
		"#####",
		".....",
		".....",
	},
	'(': {
		"...#.",
		"..#..",
		".#...",
		".#...",
		".#...",
		"..#..",
		"...#.",
	},
	')': {
		".#...",
		"..#..",
		"...#.",
		"...#.",
		"...#.",
		"..#..",
		".#...",
	},
	'[': {
		".##..",
		".#...",
		".#...",
		".#...",
		".#...",
		".#...",
		".##..",
	},
	']': {
		"..##.",
		"...#.",
		"...#.",
		"...#.",
		"...#.",
		"...#.",
		"..##.",
	},
	'\'': {
		"..#..",
		"..#..",
		".....",
		".....",
		".....",
		".....",
		".....",
	},
	'"': {
		".#.#.",
		".#.#.",
		".....",
		".....",
		".....",
		".....",
		".....",
	},
	'_': {
		".....",
		".....",
		".....",
		".....",
		".....",
		".....",
		"#####",
	},
	'<': {
		"...#.",
		"..#..",
		".#...",
		"#....",
		".#...",
		"..#..",
		"...#.",
	},
	'>': {
		".#...",
		"..#..",
		"...#.",
		"....#",
		"...#.",
		"..#..",
		".#...",
	},
	'@': {
		".###.",
		"#...#",
		"#.###",
		"#.#.#",
		"#.###",
		"#....",
		".###.",
	},
	'#': {
		".#.#.",
		"#####",
		".#.#.",
		".#.#.",
		"#####",
		".#.#.",
		".....",
	},
	'$': {
		"..#..",
		".####",
		"#.#..",
		".###.",
		"..#.#",
		"####.",
		"..#..",
	},
	'%': {
		"#...#",
		"...#.",
		"..#..",
		"..#..",
		"..#..",
		".#...",
		"#...#",
	},
	'&': {
		".##..",
		"#..#.",
		".##..",
		"#..#.",
		"#..##",
		"#..#.",
		".##.#",
	},
}
