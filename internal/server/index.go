package server

// indexHTML is a minimal control page for the looper API
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Looper</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@picocss/pico@2/css/pico.min.css">
</head>
<body>
<main class="container">
    <h1>Looper</h1>
    <button id="record">Start</button>
    <progress id="level" value="0" max="32767"></progress>
    <p id="notice"></p>
    <table>
        <thead><tr><th>#</th><th>Record</th><th>Progress</th><th></th></tr></thead>
        <tbody id="records"></tbody>
    </table>
</main>
<script>
const rows = document.getElementById('records');

async function call(method, path) {
    const res = await fetch(path, {method});
    if (!res.ok) {
        const body = await res.json();
        document.getElementById('notice').textContent = body.error;
    }
    await refresh();
}

async function refresh() {
    const status = await (await fetch('/api/status')).json();
    document.getElementById('record').textContent = status.label;

    const list = await (await fetch('/api/records')).json();
    rows.innerHTML = '';
    list.records.forEach((row, i) => {
        const id = encodeURIComponent(row.record.name);
        const tr = document.createElement('tr');
        tr.id = 'row-' + row.record.name;
        tr.innerHTML = '<td>' + (i + 1) + '</td><td>' + row.record.name + '</td>' +
            '<td><progress value="' + row.progress + '" max="100"></progress></td>' +
            '<td><a href="#" data-m="POST" data-p="/api/records/' + id + '/play">play</a> ' +
            '<a href="#" data-m="POST" data-p="/api/records/' + id + '/play?loop=true">loop</a> ' +
            '<a href="#" data-m="POST" data-p="/api/records/' + id + '/stop">stop</a> ' +
            '<a href="#" data-m="DELETE" data-p="/api/records/' + id + '">delete</a></td>';
        rows.appendChild(tr);
    });
}

rows.addEventListener('click', (e) => {
    if (e.target.dataset.p) {
        e.preventDefault();
        call(e.target.dataset.m, e.target.dataset.p);
    }
});
document.getElementById('record').addEventListener('click', () => call('POST', '/api/record/toggle'));

const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/api/ws');
ws.onmessage = (msg) => {
    const m = JSON.parse(msg.data);
    if (m.type === 'amplitude') {
        document.getElementById('level').value = m.amplitude || 0;
    } else if (m.type === 'notice') {
        document.getElementById('notice').textContent = m.notice.text;
    } else if (m.type === 'event' && m.event.kind === 'progress') {
        const tr = document.getElementById('row-' + m.event.id);
        if (tr) tr.querySelector('progress').value = m.event.progress;
    } else {
        refresh();
    }
};

refresh();
</script>
</body>
</html>`
