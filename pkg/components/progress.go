package components

// Progress is a horizontal progress bar. The fill width tracks
// value/max; a missing max reads as zero, which collapses the fill
// rather than dividing anything by it at compile time.
const progressSource = `
<node class="progress" height="8">
	<node class="progress-fill" height="8" :width="$max > 0 ? ($value / $max) * 100 : 0"/>
</node>`
