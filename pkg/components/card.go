package components

// Card is a titled container. Caller children mount into its body
// slot.
const cardSource = `
<node class="card">
	<node class="card-header">
		<text text="${$title}"/>
	</node>
	<slot name="body"/>
</node>`
