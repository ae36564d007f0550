package controllers

// mapPageHTML renders the interactive map. The same template serves the live
// page (markers fetched from the map-data endpoint) and the standalone export
// (markers inlined, Drive links kept, service links dropped since there is no
// server behind a saved file).
const mapPageHTML = `<!DOCTYPE html>
<html lang="he">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
          integrity="sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY=" crossorigin="" />
    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
            integrity="sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV1lvTlZBo=" crossorigin=""></script>
    <style>
      html, body { height: 100%; margin: 0; padding: 0; font-family: Arial, sans-serif; }
      #map { position: absolute; top: 42px; bottom: 0; left: 0; right: 0; }
      #bar {
        position: absolute; top: 0; left: 0; right: 0; height: 42px;
        background: #2c3e50; color: #ecf0f1; display: flex; align-items: center;
        padding: 0 12px; box-sizing: border-box; font-size: 14px; z-index: 1000;
      }
      #bar .title { font-weight: 700; margin-right: 16px; }
      #bar .counts { opacity: 0.85; }
      #bar .warn { color: #f1c40f; margin-left: 16px; }
      .leaflet-popup-content-wrapper, .leaflet-popup-tip { background: white; opacity: 1; }
      .leaflet-popup-content {
        margin: 12px 16px; max-height: 450px; overflow-y: auto;
        direction: rtl; text-align: right; color: #333;
      }
      .leaflet-popup-content table { border-collapse: collapse; margin-bottom: 4px; }
      .leaflet-popup-content td { padding: 2px 0 2px 8px; vertical-align: top; }
      .leaflet-popup-content iframe { border: 1px solid #ccc; border-radius: 4px; margin: 0; }
      .home-pin { font-size: 28px; line-height: 1; }
      .no-plan { color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div id="bar">
      <span class="title">{{.Title}}</span>
      <span class="counts" id="counts"></span>
      <span class="warn" id="warnings"></span>
    </div>
    <div id="map"></div>
    <script>
      var preloaded = {{.Data}};
      var standalone = {{.Standalone}};

      var street = L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
        maxZoom: 19,
        attribution: '&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors'
      });
      var satellite = L.tileLayer('https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}', {
        attribution: 'Esri'
      });
      var terrain = L.tileLayer('https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png', {
        maxZoom: 17,
        attribution: '&copy; <a href="https://opentopomap.org/">OpenTopoMap</a>'
      });
      var googleStreet = L.tileLayer('https://mt1.google.com/vt/lyrs=m&x={x}&y={y}&z={z}', {
        attribution: 'Google'
      });
      var googleSatellite = L.tileLayer('https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}', {
        attribution: 'Google'
      });

      var map = L.map('map', { layers: [street] });
      L.control.layers({
        'Street': street,
        'Satellite': satellite,
        'Terrain': terrain,
        'Google Street': googleStreet,
        'Google Satellite': googleSatellite
      }, null, { position: 'topright' }).addTo(map);

      function esc(s) {
        return String(s == null ? '' : s)
          .replace(/&/g, '&amp;').replace(/</g, '&lt;')
          .replace(/>/g, '&gt;').replace(/"/g, '&quot;');
      }

      function documentHTML(doc) {
        var parts = [];
        if (doc.drive_preview_url) {
          parts.push('<iframe src="' + esc(doc.drive_preview_url) + '" width="100%" height="120" allow="autoplay"></iframe>');
          parts.push('<a href="' + esc(doc.drive_view_url) + '" target="_blank" rel="noopener" style="font-size:11px; display:block; margin-top:2px">View in new tab</a>');
        } else if (standalone) {
          parts.push('<div style="font-size:12px">' + esc(doc.file_name) + '</div>');
        } else {
          parts.push('<a href="' + esc(doc.view_url) + '" target="_blank" rel="noopener" style="font-size:12px; display:block">' + esc(doc.file_name) + '</a>');
          parts.push('<a href="' + esc(doc.download_url) + '" style="font-size:11px; display:block; margin-top:2px">Download</a>');
        }
        return '<div style="margin:2px 0; padding:0">' + parts.join('') + '</div>';
      }

      function unitRow(label, value) {
        if (value === undefined || value === null || value === '' || value === 0) return '';
        return '<tr><td><b>' + esc(label) + ':</b></td><td>' + esc(value) + '</td></tr>';
      }

      function popupHTML(marker) {
        var parts = ['<div style="color:#333">', '<b>' + esc(marker.address) + '</b>'];
        var prices = [];
        marker.units.forEach(function(u) { if (u.price_display) prices.push(esc(u.price_display)); });
        if (prices.length > 0) {
          parts.push("<div style='margin:4px 0 8px 0'><b>Price</b>: " + prices.join(', ') + '</div>');
        }
        parts.push("<hr style='margin:8px 0'>");
        marker.units.forEach(function(u, i) {
          if (i > 0) parts.push("<hr style='margin:14px 0; border: none; border-top: 2px solid #333'>");
          parts.push('<table>' +
            unitRow('Unit', u.unit) +
            unitRow('Bedrooms', u.bedrooms) +
            unitRow('Bathrooms', u.bathrooms) +
            unitRow('Showers', u.showers) +
            unitRow('Living Room (1-5)', u.living_room_size) +
            unitRow('Balcony Faces', u.balcony_faces) +
            unitRow('Notes', u.notes) +
            '</table>');
          if (u.has_floor_plan) {
            var docs = u.documents.map(documentHTML).join('');
            parts.push('<details style="margin:4px 0"><summary style="cursor:pointer; font-size:12px">הצג תוכנית</summary>' + docs + '</details>');
          } else {
            parts.push('<div class="no-plan">אין תוכנית דירה</div>');
          }
        });
        parts.push('</div>');
        return parts.join('');
      }

      function render(data) {
        map.setView([data.center.latitude, data.center.longitude], data.zoom);
        data.markers.forEach(function(m) {
          var icon = L.divIcon({
            html: '<div class="home-pin" data-addr="' + esc(m.address) + '">🏠</div>',
            className: '',
            iconSize: [28, 28],
            iconAnchor: [14, 14]
          });
          L.marker([m.latitude, m.longitude], { icon: icon })
            .addTo(map)
            .bindPopup(popupHTML(m), { maxWidth: 320 });
        });

        var counts = data.markers.length + ' pins';
        if (data.skipped_rows > 0) counts += ' · ' + data.skipped_rows + ' rows skipped';
        if (data.ungeocodable > 0) counts += ' · ' + data.ungeocodable + ' not geocoded';
        document.getElementById('counts').textContent = counts;
        if (data.warnings && data.warnings.length > 0) {
          document.getElementById('warnings').textContent = data.warnings.join(' | ');
        }
      }

      if (preloaded) {
        render(preloaded);
      } else {
        fetch('/api/v1/map-data', { credentials: 'same-origin' })
          .then(function(resp) {
            if (!resp.ok) throw new Error('map-data request failed: ' + resp.status);
            return resp.json();
          })
          .then(render)
          .catch(function(err) {
            document.getElementById('warnings').textContent = err.message;
            map.setView([32.0853, 34.7818], 13);
          });
      }
    </script>
</body>
</html>
`
