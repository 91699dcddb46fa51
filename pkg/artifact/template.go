package artifact

// mapPage is the self-contained visualization page. Route overlays and the
// risk heatmap are injected as JSON; Leaflet and the heat plugin come from
// the CDN so the artifact is a single servable file.
const mapPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Safe Route Map</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"/>
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
<style>
  html, body, #map { height: 100%; margin: 0; }
  .legend {
    position: fixed; bottom: 50px; right: 50px; width: 230px;
    background: white; border: 2px solid grey; z-index: 9999;
    font: 14px/1.5 sans-serif; padding: 10px;
  }
</style>
</head>
<body>
<div id="map"></div>
<div class="legend">
  <strong>Route Legend</strong><br>
  <span style="color:blue;">&#9473;&#9473;&#9473;</span> Safest Path (min crime)<br>
  <span style="color:green;">&#9473;&#9473;&#9473;</span> Fastest Path (min distance)<br>
  <span style="color:red;">&#9473;&#9473;&#9473;</span> Riskiest Path (comparison only)
</div>
<script>
var data = {{.}};

var map = L.map('map').setView(data.center, 13);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

L.marker(data.start).addTo(map).bindTooltip('Start');
L.marker(data.end).addTo(map).bindTooltip('End');

data.routes.forEach(function (r) {
  L.polyline(r.coords, {
    color: r.color,
    weight: r.weight,
    opacity: r.opacity
  }).addTo(map).bindTooltip(r.tooltip);
});

if (data.heat.length > 0) {
  var heatLayer = L.heatLayer(data.heat, {
    radius: 10,
    blur: 15,
    minOpacity: 0.4,
    gradient: {0.4: 'yellow', 0.65: 'orange', 1: 'red'}
  });
  L.control.layers(null, {'Crime Heatmap': heatLayer}, {collapsed: false}).addTo(map);
  heatLayer.addTo(map);
}
</script>
</body>
</html>
`
