package httpdisplay

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>depthshow</title>
<style>
  body { background: #18181c; color: #e6e6e6; font: 13px sans-serif; margin: 0; }
  main { display: flex; flex-direction: column; align-items: center; padding: 16px; gap: 12px; }
  img { image-rendering: pixelated; max-width: 100%; }
  pre { background: #222228; padding: 8px 12px; min-width: 320px; }
</style>
</head>
<body>
<main>
  <img src="/stream.mjpg" alt="depth preview">
  <pre id="stats"></pre>
</main>
<script>
  async function refresh() {
    try {
      const res = await fetch("/api/stats");
      document.getElementById("stats").textContent = JSON.stringify(await res.json(), null, 2);
    } catch (e) {}
  }
  refresh();
  setInterval(refresh, 1000);
</script>
</body>
</html>
`
