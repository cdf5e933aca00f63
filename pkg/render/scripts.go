package render

// outputID marks the element whose screenshot becomes the export.
const outputID = "svgexport-output-fa5ce2b6d16510"

// naturalBoxScript returns the document's natural box as JSON:
// width/height attributes (unless relative), then viewBox, then getBBox.
const naturalBoxScript = `() => {
	const el = document.documentElement;
	const w = el.getAttribute('width');
	const h = el.getAttribute('height');
	const vb = el.getAttribute('viewBox');
	let box;
	if (w && h && !/%\s*$/.test(w) && !/%\s*$/.test(h)) {
		box = {kind: 'size', left: 0, top: 0, width: el.width.animVal.value, height: el.height.animVal.value};
	} else if (vb && el.viewBox) {
		const v = el.viewBox.animVal;
		box = {kind: 'viewbox', left: v.x, top: v.y, width: v.width, height: v.height};
	} else {
		const b = el.getBBox();
		box = {kind: 'bbox', left: b.x, top: b.y, width: b.width, height: b.height};
	}
	return JSON.stringify(box);
}`

// injectCSSScript prepends a <style> element holding css as CDATA to the
// root element.
const injectCSSScript = `(css) => {
	const style = document.createElementNS('http://www.w3.org/2000/svg', 'style');
	style.setAttribute('type', 'text/css');
	style.appendChild(document.createCDATASection(css));
	const svg = document.documentElement;
	svg.insertBefore(style, svg.firstChild);
}`

// layoutScript pins the root <svg> at the clip offset with its natural box
// scaled, so that the output rectangle starts at the page origin or further
// right/down when padding.
const layoutScript = `(a) => {
	const svg = document.getElementsByTagName('svg')[0];
	if (a.kind !== 'viewbox' && !svg.getAttribute('viewBox')) {
		svg.setAttribute('viewBox', '0 0 ' + a.width + ' ' + a.height);
		svg.setAttribute('preserveAspectRatio', 'xMidYMid meet');
	}
	svg.removeAttribute('width');
	svg.removeAttribute('height');
	const set = (k, v) => svg.style.setProperty(k, v, 'important');
	set('margin', '0');
	set('border', '0');
	set('padding', '0');
	set('position', 'fixed');
	set('left', a.clipX < 0 ? Math.abs(a.clipX) + 'px' : '0');
	set('top', a.clipY < 0 ? Math.abs(a.clipY) + 'px' : '0');
	set('width', (a.width * a.scale) + 'px');
	set('height', (a.height * a.scale) + 'px');
}`

// wrapperHTML hosts the laid-out SVG next to an empty marker element sized
// to the output. Arguments: marker left, top, width, height, svg markup.
const wrapperHTML = `<!DOCTYPE html>
<html>
  <head><title>svg</title></head>
  <body style="margin: 0 !important; border: 0 !important; padding: 0 !important;">
    <div id="` + outputID + `"
      style="margin: 0 !important; border: 0 !important; padding: 0 !important;
        position: fixed !important; left: %gpx !important; top: %gpx !important;
        width: %gpx !important; height: %gpx !important;"></div>
    %s
  </body>
</html>`
