package httpapi

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>하시에 순위 트래커</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; background: #fff; color: #111; }
  .wrap { max-width: 960px; margin: 0 auto; padding: 24px 16px; }
  h1 { font-size: 24px; margin: 0 0 4px; }
  .sub { color: #888; font-size: 13px; margin-bottom: 20px; }
  .cards { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; margin-bottom: 20px; }
  .card { border: 1px solid #e5e5e5; padding: 14px; }
  .card .num { font-size: 22px; font-weight: 700; }
  .card .label { color: #888; font-size: 12px; margin-top: 4px; }
  .bar { display: flex; gap: 8px; margin-bottom: 16px; flex-wrap: wrap; }
  button { border: 1px solid #ccc; background: #fff; padding: 6px 12px; font-size: 13px; cursor: pointer; }
  button.primary { background: #111; color: #fff; border-color: #111; }
  table { width: 100%; border-collapse: collapse; font-size: 14px; }
  th, td { text-align: left; padding: 8px; border-bottom: 1px solid #eee; }
  .up { color: #c0392b; } .down { color: #2471a3; } .new { color: #1e8449; }
  textarea { width: 100%; min-height: 160px; font-size: 13px; box-sizing: border-box; }
  #importBox { display: none; border: 1px solid #e5e5e5; padding: 14px; margin-bottom: 16px; }
</style>
</head>
<body>
<div class="wrap">
  <h1>하시에 순위 트래커</h1>
  <div class="sub">W컨셉 베스트 순위 모니터링 · 마지막 업데이트 <span id="lastUpdate">-</span></div>

  <div class="cards">
    <div class="card"><div class="num" id="totalCategories">-</div><div class="label">추적 카테고리</div></div>
    <div class="card"><div class="num" id="totalProducts">-</div><div class="label">추적 제품수</div></div>
    <div class="card"><div class="num" id="bestRank">-</div><div class="label">최고 순위</div></div>
  </div>

  <div class="bar">
    <button class="primary" onclick="toggleImport()">메시지 입력</button>
    <button onclick="location.href='/api/rankings/export/all'">전체 Export</button>
    <span id="categoryButtons"></span>
  </div>

  <div id="importBox">
    <textarea id="importText" placeholder="텔레그램 채널의 메시지를 복사해서 붙여넣으세요"></textarea>
    <div style="margin-top:8px"><button class="primary" onclick="submitImport()">저장</button></div>
    <div id="importResult" class="sub"></div>
  </div>

  <table>
    <thead><tr><th>순위</th><th>카테고리</th><th>상품명</th><th>변동</th></tr></thead>
    <tbody id="rows"><tr><td colspan="4">로딩 중...</td></tr></tbody>
  </table>
</div>

<script>
async function fetchJSON(url, opts) {
  const res = await fetch(url, opts);
  return res.json();
}

function changeLabel(item) {
  if (item.change_type === 'new') return '<span class="new">NEW</span>';
  if (item.change_type === 'up') return '<span class="up">▲ ' + item.rank_change + '</span>';
  if (item.change_type === 'down') return '<span class="down">▼ ' + (-item.rank_change) + '</span>';
  return '-';
}

async function loadRankings(category) {
  const url = '/api/rankings/latest-with-changes' + (category ? '?category=' + encodeURIComponent(category) : '');
  const data = await fetchJSON(url);
  const rows = document.getElementById('rows');
  if (!data.success || data.count === 0) {
    rows.innerHTML = '<tr><td colspan="4">데이터가 없습니다</td></tr>';
    return;
  }
  rows.innerHTML = data.rankings.map(function (item) {
    return '<tr><td>' + item.rank + '</td><td>' + item.category + '</td>' +
      '<td><a href="' + item.product_link + '" target="_blank">' + item.product_name + '</a></td>' +
      '<td>' + changeLabel(item) + '</td></tr>';
  }).join('');
}

async function loadStats() {
  const data = await fetchJSON('/api/rankings/stats');
  if (!data.success) return;
  document.getElementById('totalCategories').textContent = data.stats.length;
  document.getElementById('totalProducts').textContent = data.stats.reduce(function (n, s) { return n + s.total_count; }, 0);
  const best = data.stats.reduce(function (b, s) { return Math.min(b, s.best_rank); }, 999);
  document.getElementById('bestRank').textContent = best === 999 ? '-' : best + '위';
  if (data.last_update) document.getElementById('lastUpdate').textContent = data.last_update;
}

async function loadCategories() {
  const data = await fetchJSON('/api/rankings/categories');
  if (!data.success) return;
  const span = document.getElementById('categoryButtons');
  span.innerHTML = '<button onclick="loadRankings()">전체</button>' + data.categories.map(function (c) {
    return '<button onclick="loadRankings(\'' + c + '\')">' + c + '</button>';
  }).join('');
}

function toggleImport() {
  const box = document.getElementById('importBox');
  box.style.display = box.style.display === 'block' ? 'none' : 'block';
}

async function submitImport() {
  const text = document.getElementById('importText').value;
  const data = await fetchJSON('/api/rankings/import', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({ messageText: text })
  });
  document.getElementById('importResult').textContent = data.success ? data.message : data.error;
  if (data.success) {
    document.getElementById('importText').value = '';
    refresh();
  }
}

function refresh() { loadStats(); loadCategories(); loadRankings(); }
refresh();
</script>
</body>
</html>
`
