package components

// Badge is a small inline label. The tone prop carries through to the
// badge node so a stylesheet can pick it up.
const badgeSource = `
<node type="span" class="badge" :data-tone="$tone">
	<text text="${$label}"/>
</node>`
